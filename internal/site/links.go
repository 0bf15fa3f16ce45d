// Package site builds the store's outbound links: WhatsApp chat, map search,
// telephone and email.
package site

import (
	"net/url"
	"strings"
)

const (
	facebookURL  = "https://facebook.com"
	instagramURL = "https://instagram.com"
)

// Store is the static contact information of the shop.
type Store struct {
	Address         string
	Email           string
	Telephone       string // E.164, e.g. +441724289198
	WhatsAppNumber  string // digits only, e.g. 447525900400
	WhatsAppMessage string
}

// Links are ready-to-render hrefs plus their display text.
type Links struct {
	WhatsApp         string
	Maps             string
	Mailto           string
	Telephone        string
	TelephoneDisplay string
	Mobile           string
	MobileDisplay    string
	Facebook         string
	Instagram        string
	Address          string
	Email            string
}

func NewLinks(s Store) Links {
	mobile := "+" + strings.TrimPrefix(s.WhatsAppNumber, "+")
	return Links{
		WhatsApp:         WhatsAppURL(s.WhatsAppNumber, s.WhatsAppMessage),
		Maps:             MapsURL(s.Address),
		Mailto:           "mailto:" + s.Email,
		Telephone:        TelURL(s.Telephone),
		TelephoneDisplay: DisplayUKNumber(s.Telephone),
		Mobile:           TelURL(mobile),
		MobileDisplay:    DisplayUKNumber(mobile),
		Facebook:         facebookURL,
		Instagram:        instagramURL,
		Address:          s.Address,
		Email:            s.Email,
	}
}

// WhatsAppURL opens a chat with number, prefilled with message.
func WhatsAppURL(number, message string) string {
	number = strings.TrimPrefix(number, "+")
	if message == "" {
		return "https://wa.me/" + number
	}
	return "https://wa.me/" + number + "?text=" + escapeComponent(message)
}

// MapsURL searches Google Maps for address.
func MapsURL(address string) string {
	return "https://www.google.com/maps?q=" + url.QueryEscape(address)
}

func TelURL(number string) string {
	return "tel:" + strings.Join(strings.Fields(number), "")
}

// DisplayUKNumber renders +44 numbers in national format ("01724 289198").
// Other numbers are returned unchanged.
func DisplayUKNumber(number string) string {
	n := strings.Join(strings.Fields(number), "")
	if !strings.HasPrefix(n, "+44") || len(n) != 13 {
		return number
	}
	national := "0" + n[3:]
	return national[:5] + " " + national[5:]
}

// escapeComponent percent-encodes s for a query value, using %20 for spaces.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
