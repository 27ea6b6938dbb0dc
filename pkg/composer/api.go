//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package composer

import (
	"context"

	"snipbox/backend/pkg/client"
)

// API is the server surface the controller talks to. *client.Client satisfies it.
type API interface {
	CreateSubmission(ctx context.Context, text string) (client.Submission, error)
	ListSubmissions(ctx context.Context, opts client.ListOptions) (client.Page, error)
}

var _ API = (*client.Client)(nil)
