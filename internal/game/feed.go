package game

// Feed is a bounded list of desk messages, oldest first.
type Feed struct {
	limit int
	items []string
}

func NewFeed(limit int, msgs ...string) *Feed {
	if limit <= 0 {
		limit = FeedLimit
	}
	f := &Feed{limit: limit}
	for _, m := range msgs {
		f.Add(m)
	}
	return f
}

func (f *Feed) Add(msg string) {
	f.items = append(f.items, msg)
	if over := len(f.items) - f.limit; over > 0 {
		f.items = append([]string(nil), f.items[over:]...)
	}
}

func (f *Feed) Items() []string {
	return append([]string(nil), f.items...)
}
