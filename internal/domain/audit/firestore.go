package audit

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"profitlens/internal/platform/docstore"
)

// FirestoreStore keeps events under companies/{cid}/auditEvents.
type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

type eventDoc struct {
	ActorID    string    `firestore:"actorId"`
	Action     string    `firestore:"action"`
	EntityType string    `firestore:"entityType"`
	EntityID   string    `firestore:"entityId"`
	RequestID  string    `firestore:"requestId"`
	CreatedAt  time.Time `firestore:"createdAt"`
	Before     string    `firestore:"before,omitempty"`
	After      string    `firestore:"after,omitempty"`
}

func (s *FirestoreStore) events(companyID string) *firestore.CollectionRef {
	return docstore.Company(s.Client, companyID).Collection(docstore.AuditEventsCollection)
}

func (s *FirestoreStore) Record(ctx context.Context, evt Event) error {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	_, _, err := s.events(evt.CompanyID).Add(ctx, eventDoc{
		ActorID:    evt.ActorID,
		Action:     evt.Action,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		RequestID:  evt.RequestID,
		CreatedAt:  evt.CreatedAt,
		Before:     string(evt.Before),
		After:      string(evt.After),
	})
	return err
}

func (s *FirestoreStore) List(ctx context.Context, companyID string, filter Filter, limit, offset int) ([]Event, error) {
	query := s.events(companyID).Query
	if filter.Action != "" {
		query = query.Where("action", "==", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entityType", "==", filter.EntityType)
	}
	query = query.OrderBy("createdAt", firestore.Desc).Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return docstore.Collect(query.Documents(ctx), func(snap *firestore.DocumentSnapshot) (Event, error) {
		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return Event{}, err
		}
		evt := Event{
			ID:         snap.Ref.ID,
			CompanyID:  companyID,
			ActorID:    doc.ActorID,
			Action:     doc.Action,
			EntityType: doc.EntityType,
			EntityID:   doc.EntityID,
			RequestID:  doc.RequestID,
			CreatedAt:  doc.CreatedAt,
		}
		if doc.Before != "" {
			evt.Before = []byte(doc.Before)
		}
		if doc.After != "" {
			evt.After = []byte(doc.After)
		}
		return evt, nil
	})
}
