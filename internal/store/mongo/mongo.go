// Package mongo stores transactions and users in MongoDB collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"findash/internal/core"
)

const (
	transactionsCollection = "transactions"
	usersCollection        = "users"
	connectTimeout         = 10 * time.Second
)

type transactionDoc struct {
	OID         primitive.ObjectID `bson:"_id,omitempty"`
	ID          int64              `bson:"id"`
	Date        primitive.DateTime `bson:"date"`
	Amount      float64            `bson:"amount"`
	Category    string             `bson:"category"`
	Status      string             `bson:"status"`
	UserID      string             `bson:"user_id"`
	UserProfile string             `bson:"user_profile"`
}

type userDoc struct {
	ID           string             `bson:"_id"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Name         string             `bson:"name"`
	Role         string             `bson:"role"`
	CreatedAt    primitive.DateTime `bson:"created_at"`
}

type Store struct {
	client *mongo.Client
	txs    *mongo.Collection
	users  *mongo.Collection
	logger *slog.Logger
}

// Connect dials uri, verifies the primary is reachable and ensures the
// unique indexes on transaction id and user email exist.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		txs:    db.Collection(transactionsCollection),
		users:  db.Collection(usersCollection),
		logger: logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("Connected to MongoDB", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.txs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Find(ctx context.Context, f core.Filter, srt core.Sort, skip, limit int) ([]core.Transaction, error) {
	opts := options.Find().SetSort(sortDoc(srt))
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, filterDoc(f), opts)
}

func (s *Store) Count(ctx context.Context, f core.Filter) (int64, error) {
	n, err := s.txs.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) All(ctx context.Context) ([]core.Transaction, error) {
	return s.find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// InsertMany rejects the batch when any id is already stored, then inserts
// it in order. A concurrent writer can still race the check; the unique index
// reports that case as a duplicate too.
func (s *Store) InsertMany(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := core.ValidateBatch(txs); err != nil {
		return err
	}

	ids := make(bson.A, len(txs))
	docs := make([]any, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
		docs[i] = toDoc(t)
	}

	n, err := s.txs.CountDocuments(ctx, bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return fmt.Errorf("check existing ids: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("insert transactions: %w", core.ErrDuplicateTransaction)
	}

	if _, err := s.txs.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert transactions: %w", core.ErrDuplicateTransaction)
		}
		return fmt.Errorf("insert transactions: %w", err)
	}
	s.logger.InfoContext(ctx, "Transactions saved to MongoDB", "count", len(txs))
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.txs.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	doc := userDoc{
		ID:           u.ID,
		Email:        core.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         u.Role,
		CreatedAt:    primitive.NewDateTimeFromTime(u.CreatedAt),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: core.NormalizeEmail(email)}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (core.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return core.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Name:         doc.Name,
		Role:         doc.Role,
		CreatedAt:    doc.CreatedAt.Time().UTC(),
	}, nil
}

func (s *Store) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]core.Transaction, error) {
	cur, err := s.txs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, len(docs))
	for i, d := range docs {
		out[i] = fromDoc(d)
	}
	return out, nil
}

// filterDoc translates f into a query document. Clauses are implicitly AND'ed;
// the search clause is a single $or.
func filterDoc(f core.Filter) bson.D {
	doc := bson.D{}
	if f.Status != "" {
		doc = append(doc, bson.E{Key: "status", Value: f.Status})
	}
	if f.Category != "" {
		doc = append(doc, bson.E{Key: "category", Value: f.Category})
	}
	if f.UserProfile != "" {
		doc = append(doc, bson.E{Key: "user_profile", Value: f.UserProfile})
	}
	if r := rangeDoc(timeBound(f.DateFrom), timeBound(f.DateTo)); r != nil {
		doc = append(doc, bson.E{Key: "date", Value: r})
	}
	if r := rangeDoc(floatBound(f.AmountMin), floatBound(f.AmountMax)); r != nil {
		doc = append(doc, bson.E{Key: "amount", Value: r})
	}
	if f.Search.Active() {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search.Term), Options: "i"}
		or := bson.A{
			bson.D{{Key: "user_profile", Value: re}},
			bson.D{{Key: "status", Value: re}},
			bson.D{{Key: "category", Value: re}},
		}
		if f.Search.IsNumeric {
			or = append(or, bson.D{{Key: "amount", Value: f.Search.Amount}})
		}
		doc = append(doc, bson.E{Key: "$or", Value: or})
	}
	return doc
}

func rangeDoc(gte, lte any) bson.D {
	var r bson.D
	if gte != nil {
		r = append(r, bson.E{Key: "$gte", Value: gte})
	}
	if lte != nil {
		r = append(r, bson.E{Key: "$lte", Value: lte})
	}
	return r
}

func timeBound(t *time.Time) any {
	if t == nil {
		return nil
	}
	return primitive.NewDateTimeFromTime(*t)
}

func floatBound(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// sortDoc orders by the requested field, then by insertion.
func sortDoc(s core.Sort) bson.D {
	doc := bson.D{}
	if core.IsSortable(s.Field) {
		dir := 1
		if s.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: s.Field, Value: dir})
	}
	return append(doc, bson.E{Key: "_id", Value: 1})
}

func toDoc(t core.Transaction) transactionDoc {
	return transactionDoc{
		ID:          t.ID,
		Date:        primitive.NewDateTimeFromTime(t.Date),
		Amount:      t.Amount,
		Category:    t.Category,
		Status:      t.Status,
		UserID:      t.UserID,
		UserProfile: t.UserProfile,
	}
}

func fromDoc(d transactionDoc) core.Transaction {
	return core.Transaction{
		ID:          d.ID,
		Date:        d.Date.Time().UTC(),
		Amount:      d.Amount,
		Category:    d.Category,
		Status:      d.Status,
		UserID:      d.UserID,
		UserProfile: d.UserProfile,
	}
}
