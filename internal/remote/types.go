// Package remote defines the transport surface the core consumes to talk to
// a Confluence space (C9 Remote Client Contract), an HTTP implementation of
// it against the REST v1 content API, and a retry decorator implementing
// the contract's retry policy.
package remote

import "context"

// Space is the subset of a Confluence space record the core needs.
type Space struct {
	ID   string
	Key  string
	Name string
}

// Page is the subset of a Confluence content record the core needs.
type Page struct {
	ID        string
	Title     string
	SpaceKey  string
	Version   int
	ParentID  string
	Body      string
	WebUILink string
}

// PageInput carries the fields needed to create, update, or move a page.
type PageInput struct {
	SpaceKey string
	Title    string
	Body     string
	Version  int
	ParentID string
}

// Service is the transport contract the core is built against (spec §4.9).
// Implementations surface failures as one of the sentinel errors in
// errors.go, optionally wrapped in *APIError.
type Service interface {
	GetSpace(ctx context.Context, spaceKey string) (Space, error)
	GetPage(ctx context.Context, pageID string) (Page, error)
	GetPageByTitle(ctx context.Context, spaceKey, title string) (Page, bool, error)
	CreatePage(ctx context.Context, input PageInput) (Page, error)
	UpdatePage(ctx context.Context, pageID string, input PageInput) (Page, error)
	DeletePage(ctx context.Context, pageID string) error
	MovePage(ctx context.Context, pageID, newParentID string) (Page, error)
	TestConnection(ctx context.Context) error
}
