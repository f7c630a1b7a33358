package news

const (
	legacyEnabled = 1
	legacyNewsId  = 0
)

const legacyImageStyle = "display:block;margin-left:auto;margin-right:auto;max-width:80%;min-height:150px;height:auto;"

// Template renders a news item the way old clients display it.
func Template(n News) string {
	return "<div style='text-align:center;'>" +
		"<div><img style='" + legacyImageStyle + "' src='" + n.Image + "'></img>" + n.Content + "</div>" +
		"</div>"
}

// Legacy is the array form old clients expect:
// [enabled, id, title, html template, url].
func Legacy(n News) []any {
	return []any{legacyEnabled, legacyNewsId, n.Title, Template(n), n.Link}
}
