package config

import "fmt"

// Validate reports the first required setting that is missing.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required env %s", "DATABASE_URL")
	}
	if len(c.JWTSecret) == 0 {
		return fmt.Errorf("missing required env %s", "JWT_SECRET")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}
