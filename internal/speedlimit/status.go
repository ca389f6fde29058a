package speedlimit

// Status is what the presentation layer shows for the speed-limit sign.
type Status struct {
	Icon          string `json:"icon"`
	IsHighlighted bool   `json:"is_highlighted"`
}
