// Discourse topic list payload, as served by /top.json and /latest.json.

package forumapi

type TopicListResponse struct {
	TopicList TopicList `json:"topic_list"`
}

type TopicList struct {
	Topics []Topic `json:"topics"`
}

type Topic struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Views      int64  `json:"views"`
	LikeCount  int64  `json:"like_count"`
	ReplyCount int64  `json:"reply_count"`
	PostsCount int64  `json:"posts_count"`
}
