// Package treasury orchestrates the proof protocol for one tracked account:
// annotation upkeep, proof generation, anchoring, and verification.
package treasury

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kanima1/opentreasury/anchor"
	"github.com/kanima1/opentreasury/annotstore"
	"github.com/kanima1/opentreasury/ledger"
	"github.com/kanima1/opentreasury/logging"
	"github.com/kanima1/opentreasury/otms"
	"github.com/kanima1/opentreasury/verify"
)

// ViewMode controls whether mutating entry points are available.
type ViewMode int

const (
	// Interactive allows annotation edits and anchoring.
	Interactive ViewMode = iota
	// ReadOnly refuses every mutating entry point.
	ReadOnly
)

// Service ties the protocol components to one tracked treasury account.
//
// The protocol itself has no shared mutable state; the mutex here only
// guards the service's cached view (balance, history, current account) and
// the generation markers that drop superseded loads.
type Service struct {
	store      annotstore.Store
	query      ledger.QueryService
	submission ledger.SubmissionService
	log        logging.Logger
	mode       ViewMode
	cluster    string

	mu         sync.Mutex
	treasury   string
	balance    uint64
	history    []ledger.SignatureInfo
	balanceGen uuid.UUID
	historyGen uuid.UUID
}

type Options struct {
	Store      annotstore.Store
	Query      ledger.QueryService
	Submission ledger.SubmissionService
	Log        logging.Logger
	Mode       ViewMode
	Cluster    string
	Treasury   string
}

func New(opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		store:      opts.Store,
		query:      opts.Query,
		submission: opts.Submission,
		log:        log,
		mode:       opts.Mode,
		cluster:    opts.Cluster,
		treasury:   opts.Treasury,
	}
}

// SetTreasury switches the tracked account. In-flight loads for the previous
// account become stale and their results are dropped on completion.
func (s *Service) SetTreasury(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.treasury = account
	s.balance = 0
	s.history = nil
	s.balanceGen = uuid.New()
	s.historyGen = uuid.New()
}

func (s *Service) Treasury() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treasury
}

// Balance returns the last successfully loaded balance.
func (s *Service) Balance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// History returns the last successfully loaded transaction history.
func (s *Service) History() []ledger.SignatureInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.SignatureInfo(nil), s.history...)
}

// LoadBalance fetches the tracked account's balance. If the tracked account
// changed while the fetch was in flight, the result is discarded and the
// cached balance keeps the newer request's value.
func (s *Service) LoadBalance(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	account := s.treasury
	gen := uuid.New()
	s.balanceGen = gen
	s.mu.Unlock()

	bal, err := s.query.GetBalance(ctx, account)
	if err != nil {
		return 0, newError(ErrNetwork, "load balance: "+err.Error(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balanceGen != gen {
		s.log.Debug(ctx, "dropping stale balance result", "account", account)
		return bal, nil
	}
	s.balance = bal
	return bal, nil
}

// LoadHistory fetches recent transaction signatures with the same stale-drop
// rule as LoadBalance.
func (s *Service) LoadHistory(ctx context.Context, limit int) ([]ledger.SignatureInfo, error) {
	s.mu.Lock()
	account := s.treasury
	gen := uuid.New()
	s.historyGen = gen
	s.mu.Unlock()

	infos, err := s.query.GetRecentSignatures(ctx, account, limit)
	if err != nil {
		return nil, newError(ErrNetwork, "load history: "+err.Error(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyGen != gen {
		s.log.Debug(ctx, "dropping stale history result", "account", account)
		return infos, nil
	}
	s.history = infos
	return infos, nil
}

// Annotations returns the stored annotation set for the tracked account.
// A never-annotated account yields an empty set, not an error.
func (s *Service) Annotations(ctx context.Context) (map[string]otms.Annotation, error) {
	anns, err := s.store.Get(ctx, s.Treasury())
	if annotstore.IsNotFound(err) {
		return map[string]otms.Annotation{}, nil
	}
	if err != nil {
		return nil, newError(ErrInternal, "load annotations: "+err.Error(), err)
	}
	return anns, nil
}

// SaveAnnotation validates and stores one annotation.
func (s *Service) SaveAnnotation(ctx context.Context, signature string, ann otms.Annotation) error {
	if s.mode == ReadOnly {
		return newError(ErrReadOnly, "annotations cannot be edited in read-only mode", nil)
	}
	if signature == "" {
		return newError(ErrValidation, "transaction signature is required", nil)
	}
	if err := ann.Validate(); err != nil {
		return newError(ErrValidation, err.Error(), err)
	}
	anns, err := s.Annotations(ctx)
	if err != nil {
		return err
	}
	anns[signature] = ann
	if err := s.store.Put(ctx, s.Treasury(), anns); err != nil {
		return newError(ErrInternal, "save annotation: "+err.Error(), err)
	}
	return nil
}

// ClearAnnotation removes one annotation; clearing an absent one is a no-op.
func (s *Service) ClearAnnotation(ctx context.Context, signature string) error {
	if s.mode == ReadOnly {
		return newError(ErrReadOnly, "annotations cannot be edited in read-only mode", nil)
	}
	anns, err := s.Annotations(ctx)
	if err != nil {
		return err
	}
	if _, ok := anns[signature]; !ok {
		return nil
	}
	delete(anns, signature)
	if err := s.store.Put(ctx, s.Treasury(), anns); err != nil {
		return newError(ErrInternal, "clear annotation: "+err.Error(), err)
	}
	return nil
}

// GenerateProof builds a fresh document from the current annotation set and
// returns its proof record. Records are never cached: any earlier record is
// stale the moment the annotation set changes.
func (s *Service) GenerateProof(ctx context.Context) (*otms.ProofRecord, error) {
	anns, err := s.Annotations(ctx)
	if err != nil {
		return nil, err
	}
	doc := otms.Build(s.Treasury(), s.cluster, anns, time.Now())
	rec, err := otms.NewProofRecord(doc)
	if err != nil {
		return nil, newError(ErrInternal, "canonicalize document: "+err.Error(), err)
	}
	return rec, nil
}

// AnchorProof generates a fresh proof and writes its digest on-chain.
//
// The digest is recomputed here rather than accepted from the caller so a
// stale ProofRecord can never be anchored. Anchoring is explicit and never
// retried; a failed anchor surfaces as an error for the user to act on.
func (s *Service) AnchorProof(ctx context.Context, signer ledger.SigningProvider) (string, *otms.ProofRecord, error) {
	if s.mode == ReadOnly {
		return "", nil, newError(ErrReadOnly, "anchoring is disabled in read-only mode", nil)
	}
	rec, err := s.GenerateProof(ctx)
	if err != nil {
		return "", nil, err
	}
	w := &anchor.Writer{Query: s.query, Submit: s.submission, Log: s.log}
	txID, err := w.Anchor(ctx, s.Treasury(), rec.DigestHex, signer)
	if err != nil {
		return "", nil, newError(ErrNetwork, err.Error(), err)
	}
	rec.AnchorTxID = txID
	return txID, rec, nil
}

// Verify checks a transaction against a candidate document.
func (s *Service) Verify(ctx context.Context, txID, documentJSON string) (verify.Result, error) {
	v := &verify.Verifier{Query: s.query}
	res, err := v.Verify(ctx, txID, documentJSON)
	if err != nil {
		return verify.Result{}, newError(ErrNetwork, err.Error(), err)
	}
	return res, nil
}

// Export renders the current annotation set as an indented OTMS document.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	anns, err := s.Annotations(ctx)
	if err != nil {
		return nil, err
	}
	doc := otms.Build(s.Treasury(), s.cluster, anns, time.Now())
	b, err := doc.MarshalIndent()
	if err != nil {
		return nil, newError(ErrInternal, "render document: "+err.Error(), err)
	}
	return b, nil
}

// Import parses an exported document (current or legacy shape) and replaces
// the tracked account's annotation set with its entries.
func (s *Service) Import(ctx context.Context, raw []byte) error {
	if s.mode == ReadOnly {
		return newError(ErrReadOnly, "import is disabled in read-only mode", nil)
	}
	doc, err := otms.Import(raw)
	if err != nil {
		return newError(ErrParse, err.Error(), err)
	}
	anns, err := doc.Annotations()
	if err != nil {
		return newError(ErrParse, err.Error(), err)
	}
	if err := s.store.Put(ctx, s.Treasury(), anns); err != nil {
		return newError(ErrInternal, "store imported annotations: "+err.Error(), err)
	}
	return nil
}
