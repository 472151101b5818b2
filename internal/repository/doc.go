// Package repository provides the generic entity store used by every
// domain type.
//
// A Store[T] is built by New, which first runs the table through the shared
// store.Initializer. Stores never open or close the connection; the handle
// is passed in and outlives them.
//
//	db, err := store.Open(ctx, store.DefaultOptions("mine.db"))
//	in := store.NewInitializer(db)
//	items, err := repository.New(ctx, db, in, item.Mapping)
//
//	ok, err := items.Create(ctx, &item.Item{ID: "a1", Name: "Sword"})
//	it, err := items.Read(ctx, "a1")
//
// # Outcomes
//
// Create, Update and Delete return (false, nil) for nil input, an empty or
// missing id, or a duplicate id; the store does not say which. Read returns
// (nil, nil) when nothing matches. The empty string is never a stored id. A non-nil error always means the
// database failed and is never retried here.
package repository
