// Data transfer objects for the YouTube Data API v3 search and videos endpoints.
// Only the fields the collector reads are mapped.

package youtubeapi

type SearchResponse struct {
	Items []SearchItem `json:"items"`
}

type SearchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
}

type VideosResponse struct {
	Items []Video `json:"items"`
}

type Video struct {
	ID         string     `json:"id"`
	Snippet    Snippet    `json:"snippet"`
	Statistics Statistics `json:"statistics"`
}

type Snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}

// Statistics counters arrive as decimal strings. Hidden counters are omitted.
type Statistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}
