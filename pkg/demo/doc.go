// Package demo records and replays server message streams.
//
// A demo is a sequence of blocks, each a little-endian int32 length followed
// by that many message bytes. A length of -1 marks the end of the demo.
// Recordings are kept in a Store: a local directory (FileStore) or an S3
// bucket (S3Store).
//
//	store, _ := demo.NewFileStore("demos")
//	rec := demo.NewRecorder(store, "match1.dm2")
//	rec.WriteMessage(msg)
//	rec.Close(ctx)
//
//	p, _ := demo.Open(ctx, store, "match1.dm2")
//	for {
//	    msg, err := p.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package demo
