package page

import (
	"context"

	"github.com/sbcarpet/showroom/internal/domain"
)

// remoteRegion is a section rendered in the visitor's browser. Scrolling it
// means asking the browser to do so.
type remoteRegion struct {
	section domain.Section
	send    func(v any) error
}

func (r *remoteRegion) Key() string {
	return string(r.section)
}

func (r *remoteRegion) ScrollIntoView(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.send(scrollMessage{Type: messageScroll, Section: string(r.section), Behavior: "smooth"})
}
