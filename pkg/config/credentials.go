package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	usernameKey = "IBMS_USERNAME"
	passwordKey = "IBMS_PASSWORD"
)

var ErrMissingCredentials = errors.New("login credentials not set")

type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads the login pair from the dotenv file at path. Keys
// absent from the file fall back to the process environment; a missing file
// is the same as an empty one.
func LoadCredentials(path string) (Credentials, error) {
	values, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, fmt.Errorf("read %s: %w", path, err)
	}
	lookup := func(key string) string {
		if value := values[key]; value != "" {
			return value
		}
		return os.Getenv(key)
	}
	credentials := Credentials{Username: lookup(usernameKey), Password: lookup(passwordKey)}
	if credentials.Username == "" || credentials.Password == "" {
		return Credentials{}, fmt.Errorf("%w: need %s and %s in %s or the environment",
			ErrMissingCredentials, usernameKey, passwordKey, path)
	}
	return credentials, nil
}
