// Package testutil provides fixtures and helpers shared by the oauth-kv tests.
package testutil
