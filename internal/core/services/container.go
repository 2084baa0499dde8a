package services

import (
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
)

// NewServiceContainer wires the service layer from the repository provider.
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	whtIssuer := NewLoggingWHTIssuer()
	eventSvc := NewEventService(repos.EventRepo, repos.JournalRepo, whtIssuer)

	return &portssvc.ServiceContainer{
		Event: eventSvc,
	}
}
