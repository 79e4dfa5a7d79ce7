// Package mongostore implements auth.Storage and otp.Storage on MongoDB.
//
// Call EnsureIndexes once at startup: the unique index on users.email is
// what turns a registration race into auth.ErrEmailAlreadyExists, and a TTL
// index lets the server drop expired codes.
package mongostore
