package async

import "context"

// Worker is a long running consumer started by main with a done callback
// that it must call once Run returns.
type Worker interface {
	Run(ctx context.Context, done func())
	Shutdown()
}
