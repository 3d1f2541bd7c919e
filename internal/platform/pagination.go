package platform

import "context"

// FetchPages iterates page=1,2,… calling fetch for each page until a
// page returns fewer than pageSize items or stop returns true for some
// element (that element and all subsequent elements of the page are
// excluded from the result). If fetch returns an error after at least
// one page has already been accumulated, the accumulated results are
// returned instead of the error — mirroring
// original_source/github-api/src/api/client_proxy.rs::fetch_pages
// exactly, including its "don't discard partial progress" behavior.
func FetchPages[T any](ctx context.Context, pageSize int, fetch func(ctx context.Context, page int) ([]T, error), stop func(T) bool) ([]T, error) {
	var result []T
	page := 1
	for {
		records, err := fetch(ctx, page)
		if err != nil {
			if len(result) == 0 {
				return nil, err
			}
			return result, nil
		}
		done := len(records) < pageSize
		for _, rec := range records {
			if stop != nil && stop(rec) {
				done = true
				break
			}
			result = append(result, rec)
		}
		if done {
			break
		}
		page++
	}
	return result, nil
}

// OrgActivityPage is one page of an organization's activity feed, as
// surfaced through a cursor-paginated GraphQL query.
type OrgActivityPage struct {
	Items      []OrgActivityItem
	NextCursor string
	HasMore    bool
}

// OrgActivityItem is a single organization activity record.
type OrgActivityItem struct {
	ID        string
	Type      string
	CreatedAt string
	Actor     string
}

const orgActivityQuery = `query($login: String!, $after: String) {
	organization(login: $login) {
		repositories(first: 20, after: $after) {
			pageInfo { hasNextPage endCursor }
			nodes {
				nameWithOwner
				pushedAt
			}
		}
	}
}`

// FetchOrganizationActivity fetches one page of an organization's
// repository activity via GraphQL, using an opaque cursor exactly the
// way GitHub's GraphQL API requires (spec.md §4.6: "fetch organization
// activity (paged GraphQL with opaque cursor)").
func (c *Client) FetchOrganizationActivity(ctx context.Context, login, after string) (*OrgActivityPage, error) {
	var resp struct {
		Organization struct {
			Repositories struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []struct {
					NameWithOwner string `json:"nameWithOwner"`
					PushedAt      string `json:"pushedAt"`
				} `json:"nodes"`
			} `json:"repositories"`
		} `json:"organization"`
	}

	variables := map[string]any{"login": login}
	if after != "" {
		variables["after"] = after
	}
	if err := c.DoGraphQL(ctx, orgActivityQuery, variables, &resp); err != nil {
		return nil, err
	}

	page := &OrgActivityPage{
		NextCursor: resp.Organization.Repositories.PageInfo.EndCursor,
		HasMore:    resp.Organization.Repositories.PageInfo.HasNextPage,
	}
	for _, n := range resp.Organization.Repositories.Nodes {
		page.Items = append(page.Items, OrgActivityItem{
			ID:        n.NameWithOwner,
			Type:      "repository_push",
			CreatedAt: n.PushedAt,
			Actor:     login,
		})
	}
	return page, nil
}
