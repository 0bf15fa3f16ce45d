package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/sbcarpet/showroom/internal/catalog"
	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/internal/site"
)

type navItem struct {
	ID     domain.Section
	Label  string
	Active bool
}

type formField struct {
	Name        domain.Field
	Label       string
	Type        string
	Placeholder string
	Multiline   bool
	HalfWidth   bool
}

type landingPage struct {
	Nav              []navItem
	Catalog          *catalog.Catalog
	Links            site.Links
	Form             []formField
	SuccessDisplayMS int64
}

var contactFormFields = []formField{
	{Name: domain.FieldFirstName, Label: "First name", Type: "text", Placeholder: "Enter your first name", HalfWidth: true},
	{Name: domain.FieldLastName, Label: "Last name", Type: "text", Placeholder: "Enter your last name", HalfWidth: true},
	{Name: domain.FieldEmail, Label: "Email", Type: "email", Placeholder: "Enter your email"},
	{Name: domain.FieldPhone, Label: "Phone", Type: "tel", Placeholder: "Enter your phone number"},
	{Name: domain.FieldMessage, Label: "Message", Placeholder: "Enter your message", Multiline: true},
}

func (s *Server) handleLanding(c echo.Context) error {
	sections := domain.Sections()
	nav := make([]navItem, 0, len(sections))
	for _, sec := range sections {
		nav = append(nav, navItem{ID: sec, Label: sec.Label(), Active: sec == domain.DefaultSection})
	}

	return s.renderTemplate(c, "index.html", landingPage{
		Nav:              nav,
		Catalog:          s.catalog,
		Links:            s.links,
		Form:             contactFormFields,
		SuccessDisplayMS: s.config.SuccessDisplay.Milliseconds(),
	})
}
