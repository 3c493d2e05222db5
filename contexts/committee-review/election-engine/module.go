package electionengine

import (
	"log/slog"

	httpadapter "oversight/contexts/committee-review/election-engine/adapters/http"
	"oversight/contexts/committee-review/election-engine/adapters/memory"
	"oversight/contexts/committee-review/election-engine/application/commands"
	"oversight/contexts/committee-review/election-engine/application/queries"
	"oversight/contexts/committee-review/election-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Elections     ports.ElectionRepository
	Linkage       ports.LinkageRepository
	Votes         ports.VoteRepository
	References    ports.ReferenceRepository
	Eligibility   ports.EligibilityProvider
	Match         ports.MatchProvider
	Notifications ports.NotificationLog
	Outbox        ports.OutboxWriter
	UnitOfWork    ports.UnitOfWork
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	voteUseCase := commands.VoteUseCase{
		Votes:         deps.Votes,
		Elections:     deps.Elections,
		Linkage:       deps.Linkage,
		References:    deps.References,
		Eligibility:   deps.Eligibility,
		Notifications: deps.Notifications,
		Outbox:        deps.Outbox,
		UnitOfWork:    deps.UnitOfWork,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		Logger:        deps.Logger,
	}
	electionUseCase := commands.ElectionUseCase{
		Elections:   deps.Elections,
		Linkage:     deps.Linkage,
		Votes:       deps.Votes,
		References:  deps.References,
		Eligibility: deps.Eligibility,
		Match:       deps.Match,
		Provisioner: voteUseCase,
		Outbox:      deps.Outbox,
		UnitOfWork:  deps.UnitOfWork,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	linkageUseCase := commands.LinkageUseCase{
		Elections:   deps.Elections,
		Linkage:     deps.Linkage,
		References:  deps.References,
		Provisioner: voteUseCase,
		Outbox:      deps.Outbox,
		UnitOfWork:  deps.UnitOfWork,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	statusUseCase := queries.ElectionStatusUseCase{
		Elections:  deps.Elections,
		Votes:      deps.Votes,
		References: deps.References,
		Logger:     deps.Logger,
	}
	pendingCaseUseCase := queries.PendingCaseUseCase{
		Elections:   deps.Elections,
		Votes:       deps.Votes,
		Linkage:     deps.Linkage,
		References:  deps.References,
		Eligibility: deps.Eligibility,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Elections:    electionUseCase,
			Votes:        voteUseCase,
			Linkage:      linkageUseCase,
			Status:       statusUseCase,
			PendingCases: pendingCaseUseCase,
			Logger:       deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one in-memory store, used by tests
// and local development.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections:     store,
		Linkage:       store,
		Votes:         store,
		References:    store,
		Eligibility:   store,
		Match:         store,
		Notifications: store,
		Outbox:        store,
		UnitOfWork:    store,
		Clock:         store,
		IDGen:         store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
