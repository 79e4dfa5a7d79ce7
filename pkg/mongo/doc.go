// Package mongo connects to MongoDB with the official v2 driver.
//
// New applies Config to the client options and pings the server, retrying
// with exponential backoff while ctx allows. NewWithDatabase returns the
// configured database handle, which mongostore uses for its collections.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	checks = append(checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})
package mongo
