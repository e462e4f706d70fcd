// Package storage persists rendered menu emails.
//
// Two backends implement Storage: S3Storage (any S3-compatible service via
// aws-sdk-go-v2) and LocalStorage (files under a directory). Archive fans a single
// rendered menu out to every configured backend:
//
//	local, _ := storage.NewLocal("./archive")
//	s3store, _ := storage.New(cfg.S3)
//	archive := storage.NewArchive(log,
//		storage.Target{Name: "local", Storage: local},
//		storage.Target{Name: "s3", Storage: s3store, Prefix: s3store.Prefix()},
//	)
//	keys, err := archive.Save(ctx, "2024-03-07", html)
//
// Archive failures are returned joined with ErrArchiveFailed so callers can log
// them without aborting a delivery.
//
// S3 errors are mapped onto sentinels (ErrNotFound, ErrAccessDenied, ...);
// match them with errors.Is.
package storage
