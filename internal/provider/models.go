package provider

import (
	"time"

	"github.com/leadscout/leadscout/internal/domain"
)

// Wire types for the provider API. Raw payloads are parsed into domain
// entities here, at the boundary; nothing past this package handles
// untyped JSON.

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type videoListResponse struct {
	Items []struct {
		Statistics struct {
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type channelListResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

type commentSnippet struct {
	AuthorDisplayName string `json:"authorDisplayName"`
	AuthorChannelID   struct {
		Value string `json:"value"`
	} `json:"authorChannelId"`
	TextDisplay string    `json:"textDisplay"`
	ParentID    string    `json:"parentId"`
	LikeCount   int64     `json:"likeCount"`
	PublishedAt time.Time `json:"publishedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type commentThreadsResponse struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				ID      string         `json:"id"`
				Snippet commentSnippet `json:"snippet"`
			} `json:"topLevelComment"`
			TotalReplyCount int64 `json:"totalReplyCount"`
		} `json:"snippet"`
		Replies struct {
			Comments []struct {
				ID      string         `json:"id"`
				Snippet commentSnippet `json:"snippet"`
			} `json:"comments"`
		} `json:"replies"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// Thread is one comment thread: a top-level comment and its direct replies.
type Thread struct {
	TopLevel domain.Comment
	Replies  []domain.Comment
}

// ThreadPage is one page of comment threads for an item.
type ThreadPage struct {
	Threads       []Thread
	NextPageToken string
}

func (r commentThreadsResponse) toThreadPage(itemID string) ThreadPage {
	page := ThreadPage{NextPageToken: r.NextPageToken}
	for _, item := range r.Items {
		top := item.Snippet.TopLevelComment
		thread := Thread{
			TopLevel: domain.Comment{
				ID:          top.ID,
				ItemID:      itemID,
				AuthorID:    top.Snippet.AuthorChannelID.Value,
				AuthorName:  top.Snippet.AuthorDisplayName,
				Text:        top.Snippet.TextDisplay,
				PublishedAt: top.Snippet.PublishedAt,
				UpdatedAt:   top.Snippet.UpdatedAt,
				LikeCount:   top.Snippet.LikeCount,
				ReplyCount:  item.Snippet.TotalReplyCount,
			},
		}
		for _, reply := range item.Replies.Comments {
			parentID := reply.Snippet.ParentID
			if parentID == "" {
				parentID = top.ID
			}
			thread.Replies = append(thread.Replies, domain.Comment{
				ID:          reply.ID,
				ItemID:      itemID,
				ParentID:    parentID,
				AuthorID:    reply.Snippet.AuthorChannelID.Value,
				AuthorName:  reply.Snippet.AuthorDisplayName,
				Text:        reply.Snippet.TextDisplay,
				PublishedAt: reply.Snippet.PublishedAt,
				UpdatedAt:   reply.Snippet.UpdatedAt,
				LikeCount:   reply.Snippet.LikeCount,
			})
		}
		page.Threads = append(page.Threads, thread)
	}
	return page
}
