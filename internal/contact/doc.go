// Package contact owns the contact form: field state, validation rules and the
// submission state machine that hands valid inquiries to the mail relay.
//
// Validation failures are expected and surface per field. Relay failures are not
// shown to the visitor: they are logged and the form simply returns to idle so the
// visitor can try again.
package contact
