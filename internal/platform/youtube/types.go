package youtube

// API response types (private - implementation detail)

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

// best returns the highest resolution thumbnail available.
func (t thumbnails) best() string {
	for _, u := range []string{t.High.URL, t.Medium.URL, t.Default.URL} {
		if u != "" {
			return u
		}
	}
	return ""
}

type snippet struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  string     `json:"publishedAt"`
	Thumbnails   thumbnails `json:"thumbnails"`
	Tags         []string   `json:"tags"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videoItem struct {
	ID         string  `json:"id"`
	Snippet    snippet `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type videosResponse struct {
	Items []videoItem `json:"items"`
}
