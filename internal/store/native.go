package store

// Native keeps users in PostgreSQL and everything else in MongoDB.
type Native struct {
	*PostgresStore
	*MongoStore
}

func NewNative(users *PostgresStore, docs *MongoStore) *Native {
	return &Native{PostgresStore: users, MongoStore: docs}
}

var _ Store = (*Native)(nil)
