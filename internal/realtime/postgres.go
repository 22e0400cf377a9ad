package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lib/pq"
)

const NotifyChannel = "table_changes"

const notifyFunction = `CREATE OR REPLACE FUNCTION notify_table_change() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('` + NotifyChannel + `', json_build_object('table', TG_TABLE_NAME, 'op', TG_OP)::text);
  RETURN NULL;
END;
$$ LANGUAGE plpgsql`

// InstallNotifyTriggers creates the trigger function that feeds
// PostgresFeed and attaches it to each table. It is idempotent.
func InstallNotifyTriggers(ctx context.Context, db *sql.DB, tables []string) error {
	if _, err := db.ExecContext(ctx, notifyFunction); err != nil {
		return fmt.Errorf("create notify function: %w", err)
	}

	for _, table := range tables {
		trigger := pq.QuoteIdentifier(table + "_notify_change")
		ident := pq.QuoteIdentifier(table)

		if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, ident)); err != nil {
			return fmt.Errorf("drop trigger on %s: %w", table, err)
		}
		stmt := fmt.Sprintf(
			`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH STATEMENT EXECUTE FUNCTION notify_table_change()`,
			trigger, ident,
		)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create trigger on %s: %w", table, err)
		}
	}
	return nil
}

// notificationSource is the part of *pq.Listener the feed consumes.
type notificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// PostgresFeed turns LISTEN/NOTIFY messages on NotifyChannel into
// Changes.
type PostgresFeed struct {
	listener notificationSource
	fanout   *fanout
	logger   *slog.Logger
	done     chan struct{}
	once     sync.Once
}

// NewPostgresFeed opens a dedicated listener connection.
func NewPostgresFeed(dsn string, logger *slog.Logger) (*PostgresFeed, error) {
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn("change listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			logger.Info("change listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("change listener connection attempt failed", "error", err)
		}
	})
	if err := listener.Listen(NotifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return newPostgresFeed(listener, logger), nil
}

func newPostgresFeed(src notificationSource, logger *slog.Logger) *PostgresFeed {
	f := &PostgresFeed{
		listener: src,
		fanout:   newFanout(),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go f.pump()
	return f
}

func (f *PostgresFeed) pump() {
	notifications := f.listener.NotificationChannel()
	for {
		select {
		case <-f.done:
			return
		case n, ok := <-notifications:
			if !ok {
				f.fanout.close()
				return
			}
			// A nil notification means the connection was re-established
			// and anything could have changed meanwhile.
			if n == nil {
				f.fanout.publish(Change{Table: "*", Op: "RECONNECT", At: time.Now()})
				continue
			}

			var c Change
			if err := json.Unmarshal([]byte(n.Extra), &c); err != nil || c.Table == "" {
				f.logger.Warn("dropping malformed notification",
					"channel", n.Channel,
					"payload", n.Extra,
				)
				continue
			}
			c.At = time.Now()
			f.fanout.publish(c)
		}
	}
}

func (f *PostgresFeed) Subscribe(ctx context.Context, tables ...string) (<-chan Change, error) {
	if len(tables) > 0 {
		tables = append(slices.Clone(tables), "*")
	}
	return f.fanout.add(ctx, tables)
}

func (f *PostgresFeed) Close() error {
	var err error
	f.once.Do(func() {
		close(f.done)
		f.fanout.close()
		err = f.listener.Close()
	})
	return err
}
