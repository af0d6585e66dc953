package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config is optional: an empty URL disables graph persistence.
type Config struct {
	URL      string `split_words:"true"`
	User     string `split_words:"true" default:"neo4j"`
	Password string `split_words:"true"`
	Database string `split_words:"true"`
}

func (c *Config) Enabled() bool {
	return c.URL != ""
}

// New opens a driver and verifies the server is reachable.
func (c *Config) New(ctx context.Context) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(c.URL, neo4j.BasicAuth(c.User, c.Password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return driver, nil
}
