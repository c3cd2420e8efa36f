// Package mcp assembles the tracker bridge.
//
// Run parses the command line, loads the tracker configuration and serves the
// issue tools over stdio or HTTP. NewServer performs the same assembly for
// callers that bring their own config:
//
//	bridge, _ := mcp.NewServer(&mcp.ServerOptions{Config: cfg})
//	defer bridge.Close()
//	log.Fatal(bridge.HTTP(ctx, ":8000").ListenAndServe())
package mcp
