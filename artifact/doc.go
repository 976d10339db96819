// Package artifact defines the values exchanged between pipeline steps and
// the Materializer that persists them.
//
// The set of artifact kinds is closed: a numeric series and a logistic
// regression classifier. Each kind maps to one encode/decode pair; there is
// no runtime registration and no type inspection.
//
//	m := artifact.NewMaterializer(store, log)
//	err := m.Persist(ctx, artifact.FromClassifier(clf), loc)
//	a, err := m.Restore(ctx, loc, artifact.KindClassifier)
package artifact
