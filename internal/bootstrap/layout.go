package bootstrap

// Database names
const (
	WebUIDatabase = "webuiDB"
	AuthDatabase  = "authdb"
)

// Collection names
const (
	UsersCollection    = "users"
	SessionsCollection = "sessions"
	AuthKeysCollection = "authKeys"
)

// Database is one database of the bootstrap layout and the collections created in it, in order.
type Database struct {
	Name        string   `yaml:"name"`
	Collections []string `yaml:"collections"`
	// Done is the progress line emitted once every collection exists.
	Done string `yaml:"-"`
}

var layout = []Database{
	{
		Name:        WebUIDatabase,
		Collections: []string{UsersCollection, SessionsCollection},
		Done:        "Created webuiDB database with collections",
	},
	{
		Name:        AuthDatabase,
		Collections: []string{AuthKeysCollection},
		Done:        "Created authdb database with authKeys collection",
	},
}

// Layout returns a copy of the fixed database/collection layout.
func Layout() []Database {
	out := make([]Database, len(layout))
	for i, d := range layout {
		d.Collections = append([]string(nil), d.Collections...)
		out[i] = d
	}
	return out
}
