package artifact

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/storage"
)

// Materializer moves artifacts between memory and the artifact store. Each
// artifact is one object named FileName inside its location, written in Go's
// native gob encoding with no header or version.
type Materializer struct {
	store storage.Storage
	log   *logger.Logger
}

// NewMaterializer returns a materializer over store.
func NewMaterializer(store storage.Storage, log *logger.Logger) *Materializer {
	return &Materializer{store: store, log: log.WithComponent("materializer")}
}

// Persist writes a to loc, replacing whatever was there. An unknown kind or a
// missing payload is UNSUPPORTED_TYPE.
func (m *Materializer) Persist(ctx context.Context, a Artifact, loc Location) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanPersist)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrArtifactKind, string(a.Kind))
	observability.SetSpanAttribute(ctx, observability.AttrLocation, string(loc))

	c, ok := codecs[a.Kind]
	if !ok || !a.payloadSet() {
		err := errors.UnsupportedType(string(a.Kind))
		observability.SetSpanError(ctx, err)
		return err
	}

	data, err := c.encode(a)
	if err != nil {
		err = errors.Internal(fmt.Errorf("encode %s: %w", a.Kind, err))
		observability.SetSpanError(ctx, err)
		return err
	}
	if err := storage.WriteFile(ctx, m.store, loc.File(), data); err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("persist %s to %s: %w", a.Kind, loc, err)
	}

	m.log.Debug("artifact persisted", logger.Fields(
		logger.FieldArtifact, string(a.Kind),
		logger.FieldLocation, string(loc),
		"bytes", len(data),
	))
	return nil
}

// Restore reads the artifact of the given kind from loc. A kind outside the
// supported set is UNSUPPORTED_TYPE; a missing, empty, truncated or
// undecodable object, or one that decodes to an inconsistent value, is
// CORRUPT_ARTIFACT.
func (m *Materializer) Restore(ctx context.Context, loc Location, kind Kind) (Artifact, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRestore)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrArtifactKind, string(kind))
	observability.SetSpanAttribute(ctx, observability.AttrLocation, string(loc))

	c, ok := codecs[kind]
	if !ok {
		err := errors.UnsupportedType(string(kind))
		observability.SetSpanError(ctx, err)
		return Artifact{}, err
	}

	data, err := storage.ReadFile(ctx, m.store, loc.File())
	if err != nil {
		if !stderrors.Is(err, storage.ErrNotFound) {
			observability.SetSpanError(ctx, err)
			return Artifact{}, fmt.Errorf("restore %s from %s: %w", kind, loc, err)
		}
		err = errors.CorruptArtifact(string(loc), err)
		observability.SetSpanError(ctx, err)
		return Artifact{}, err
	}

	a, err := c.decode(data)
	if err != nil {
		err = errors.CorruptArtifact(string(loc), err).WithDetail("kind", string(kind))
		observability.SetSpanError(ctx, err)
		return Artifact{}, err
	}
	return a, nil
}
