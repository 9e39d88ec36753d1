package store

import (
	"context"
	"fmt"

	config "example.com/postapi/internal/init"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"github.com/gocql/gocql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/cassandra"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
	// ErrNotApplied is returned when a conditional write matched no row.
	ErrNotApplied = errors.New("conditional write not applied")
)

// --- Interfaces ---

type SessionInterface interface {
	Query(stmt string, values ...interface{}) *gocql.Query
	Close()
}

type StoreInterface interface {
	CreateUser(ctx context.Context, username string, passwordHash []byte) (string, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	DeleteUser(ctx context.Context, user models.User) error
	AddPost(ctx context.Context, post models.Post) error
	GetPost(ctx context.Context, postID string) (models.Post, error)
	DeletePost(ctx context.Context, postID, ownerID string) error
	RecordActivity(ctx context.Context, event models.Event) error
	GetActivity(ctx context.Context, userID string, limit int) ([]models.Event, error)
	Close()
}

// --- Store Implementation ---

type Store struct {
	Session SessionInterface
	log     *logger.Logger
}

// New connects to Cassandra, ensuring the keyspace exists and migrations are applied.
func New(cfg *config.Config, log *logger.Logger) (StoreInterface, error) {
	if err := Migrate(cfg, log); err != nil {
		return nil, err
	}

	cluster := newCluster(cfg)
	cluster.Keyspace = cfg.CassandraKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.Serial

	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Cassandra session")
	}

	log.Info("store", "Connected to Cassandra keyspace (host anonymized)")
	return &Store{Session: sess, log: log}, nil
}

// Migrate creates the keyspace if needed and applies pending schema migrations.
func Migrate(cfg *config.Config, log *logger.Logger) error {
	if err := ensureKeyspace(cfg, log); err != nil {
		return errors.Wrap(err, "failed to ensure keyspace")
	}
	if err := runMigrations(cfg, log); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	return nil
}

func newCluster(cfg *config.Config) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.CassandraHost)
	cluster.Timeout = cfg.CassandraTimeout
	cluster.ConnectTimeout = cfg.CassandraTimeout

	if cfg.CassandraUsername != "" && cfg.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.CassandraUsername,
			Password: cfg.CassandraPassword,
		}
	}

	if cfg.CassandraDC != "" {
		cluster.HostFilter = gocql.DataCentreHostFilter(cfg.CassandraDC)
	}
	return cluster
}

// --- Ensure keyspace exists before migrations ---

func ensureKeyspace(cfg *config.Config, log *logger.Logger) error {
	cluster := newCluster(cfg)
	cluster.Keyspace = "system"
	sess, err := cluster.CreateSession()
	if err != nil {
		return errors.Wrap(err, "failed to connect to Cassandra system keyspace")
	}
	defer sess.Close()

	query := fmt.Sprintf(`
        CREATE KEYSPACE IF NOT EXISTS %s
        WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1};
    `, cfg.CassandraKeyspace)

	if err := sess.Query(query).Exec(); err != nil {
		return errors.Wrap(err, "failed to create keyspace")
	}

	log.Info("store", "Ensured Cassandra keyspace exists (keyspace name anonymized)")
	return nil
}

// --- Migration runner ---

func runMigrations(cfg *config.Config, log *logger.Logger) error {
	sourceURL := fmt.Sprintf("file://%s", cfg.MigrationsPath)
	dbURL := fmt.Sprintf(
		"cassandra://%s/%s?x-migrations-table=schema_migrations&x-multi-statement=true",
		cfg.CassandraHost, cfg.CassandraKeyspace,
	)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return errors.Wrap(err, "failed to create migrate instance")
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration up failed")
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("store", "No new migrations to apply")
	} else {
		log.Info("store", "Migrations applied successfully")
	}
	return nil
}

// Close gracefully closes Cassandra session.
func (s *Store) Close() {
	if s.Session != nil {
		s.Session.Close()
		s.log.Info("store", "Cassandra session closed")
	}
}
