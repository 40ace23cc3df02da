package internal

import (
	"sjsage522/jobworker/services/cache"
	"sjsage522/jobworker/services/mailer"
	"sjsage522/jobworker/services/publisher"
	"sjsage522/jobworker/services/store"
)

// Dependencies holds all service dependencies.
// Publisher, Cache and Mailer are nil when not configured.
type Dependencies struct {
	Store     store.Store
	Publisher publisher.Publisher
	Cache     cache.CacheService
	Mailer    mailer.Sender
}

// Cleanup closes every service that holds a connection
func (d *Dependencies) Cleanup() {
	if d == nil {
		return
	}
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Store != nil {
		d.Store.Close()
	}
}
