package instagram

// serpResponse is the subset of a SerpApi Google search response we read.
type serpResponse struct {
	ShortVideosResults []serpVideo `json:"short_videos_results"`
	VideoResults       []serpVideo `json:"video_results"`
	Error              string      `json:"error"`
}

type serpVideo struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Source    string `json:"source"`
	Channel   string `json:"channel"`
	Duration  string `json:"duration"`
	Date      string `json:"date"`
	Snippet   string `json:"snippet"`
}

// creator returns the best available uploader name.
func (v serpVideo) creator() string {
	if v.Channel != "" {
		return v.Channel
	}
	return v.Source
}
