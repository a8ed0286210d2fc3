// Package lockstep supervises the lifecycle of a locally-run server process
// that is started over stdio by a parent, typically an MCP host, and must
// hold one TCP port and one database connection for as long as the parent
// lives.
//
// A Supervisor reclaims the port by killing whatever process holds it,
// binds it, opens the pooled database connection, serves a health and
// metrics endpoint on the port and watches the parent process. When the
// parent disappears the process exits with status 0; on an interrupt the
// database connection is closed and the process exits with status 130.
//
// # Basic Usage
//
//	import "github.com/giantswarm/lockstep"
//
//	sup := lockstep.New(8080,
//	    lockstep.WithDatabaseURI(os.Getenv("MONGODB_URI")),
//	    lockstep.WithDatabaseName("app"),
//	)
//	if err := sup.Start(ctx); err != nil {
//	    os.Exit(1)
//	}
//	defer sup.Shutdown(context.Background())
//
//	handle, err := sup.Pool().Acquire(ctx, uri, "app") // cached after Start
//	client, db, _ := handle.Mongo()
//
// # Port Reclamation
//
// Reclamation terminates arbitrary processes by PID without asking. Only
// point a Supervisor at a port that belongs to it.
package lockstep
