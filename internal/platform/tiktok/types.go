package tiktok

// searchResponse is the RapidAPI TikTok scraper envelope. code is 0 on success.
type searchResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Videos  []video `json:"videos"`
		Cursor  int     `json:"cursor"`
		HasMore bool    `json:"hasMore"`
	} `json:"data"`
}

type video struct {
	VideoID      string `json:"video_id"`
	AwemeID      string `json:"aweme_id"`
	Title        string `json:"title"`
	Cover        string `json:"cover"`
	OriginCover  string `json:"origin_cover"`
	Duration     int    `json:"duration"`
	PlayCount    *int64 `json:"play_count"`
	DiggCount    *int64 `json:"digg_count"`
	CommentCount *int64 `json:"comment_count"`
	CreateTime   int64  `json:"create_time"`
	Author       struct {
		ID       string `json:"id"`
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
}

func (v video) id() string {
	if v.VideoID != "" {
		return v.VideoID
	}
	return v.AwemeID
}
