package domain

type cursorState int

const (
	cursorInitial cursorState = iota
	cursorMore
	cursorExhausted
)

// PageCursor tracks listing continuation. The zero value is the initial cursor
// (nothing fetched yet). The token itself is opaque and never parsed.
type PageCursor struct {
	state cursorState
	token string
}

// InitialCursor returns the cursor of a pipeline that has not listed anything yet
func InitialCursor() PageCursor {
	return PageCursor{state: cursorInitial}
}

// NextCursor builds the cursor that follows a listing call. An empty token
// means the listing is exhausted.
func NextCursor(nextPageToken string) PageCursor {
	if nextPageToken == "" {
		return PageCursor{state: cursorExhausted}
	}
	return PageCursor{state: cursorMore, token: nextPageToken}
}

// Token returns the opaque continuation token, empty unless HasMore is true
func (c PageCursor) Token() string {
	return c.token
}

// HasMore reports whether a load-more call is possible
func (c PageCursor) HasMore() bool {
	return c.state == cursorMore && c.token != ""
}

// IsInitial reports whether no listing has happened yet
func (c PageCursor) IsInitial() bool {
	return c.state == cursorInitial
}

// IsExhausted reports whether the last listing returned no continuation token
func (c PageCursor) IsExhausted() bool {
	return c.state == cursorExhausted
}

func (c PageCursor) String() string {
	switch c.state {
	case cursorMore:
		return "more"
	case cursorExhausted:
		return "exhausted"
	default:
		return "initial"
	}
}
