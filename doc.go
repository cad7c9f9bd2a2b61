// Package exclusor runs the exclude-cluster approval workflow: requesters ask
// for a cluster to be excluded through a Slack slash command, an approver
// accepts or denies the request from the posted message, and accepted clusters
// are appended to an exclusion list that is replicated to a secondary host and
// cleared every evening.
//
// The root package wires the services together:
//
//	cfg, _ := exclusor.LoadConfig(ctx, "config.yaml")
//	srv, _ := exclusor.New(ctx, cfg)
//	go srv.Start(ctx)
//	defer srv.Shutdown(ctx)
//
// Individual components live under service/.
package exclusor
