// Package minio provides a blobstore.Store implementation using the MinIO
// client, so reports and ground-truth files can live on any S3-compatible
// object store shared between benchmark machines.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "benchmarks", "annbench/")
package minio
