package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/domain"
	"github.com/hamed0406/storecheck/internal/metrics"
	"github.com/hamed0406/storecheck/internal/postgrest"
	"github.com/hamed0406/storecheck/internal/schema"
)

// cleanupTimeout bounds the delete once the caller's context is gone.
const cleanupTimeout = 15 * time.Second

// StoreChecker runs the connection → write → read → cleanup sequence against
// one table and prints a human-readable account of it to Out.
type StoreChecker struct {
	Client    *postgrest.Client
	Table     string
	Out       io.Writer
	Logger    *zap.Logger
	Inspector TableInspector // optional
	Keys      *domain.KeyGenerator
	Now       func() time.Time
	// DiagnoseDNS runs a DNS lookup of the target host on transport errors.
	DiagnoseDNS bool
}

func NewStoreChecker(client *postgrest.Client, table string, out io.Writer, logger *zap.Logger) *StoreChecker {
	if table == "" {
		table = schema.DefaultTable
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreChecker{
		Client:      client,
		Table:       table,
		Out:         out,
		Logger:      logger,
		Keys:        &domain.KeyGenerator{},
		Now:         time.Now,
		DiagnoseDNS: true,
	}
}

// Run executes the full sequence. Connection and write failures stop the run;
// a failed read still cleans up; cleanup itself is best effort.
func (c *StoreChecker) Run(ctx context.Context) *domain.Report {
	rep := &domain.Report{
		ID:        uuid.NewString(),
		Target:    c.Client.BaseURL,
		Table:     c.Table,
		StartedAt: c.Now().UTC(),
	}
	c.say("🚀 Data store connectivity check\n")

	err := c.step(rep, domain.StepConnection, func() (*postgrest.Response, error) { return c.connection(ctx) })
	if err != nil {
		rep.Failure = FailureKind(err)
		if errors.Is(err, ErrSchemaMissing) {
			c.say("\n⚠️  Please create the %s table and try again", c.Table)
		} else {
			c.say("\n⚠️  Fix the connection problem above and try again")
		}
		return c.finish(rep)
	}

	var rec domain.ProbeRecord
	err = c.step(rep, domain.StepWrite, func() (resp *postgrest.Response, err error) {
		rec, resp, err = c.write(ctx)
		return resp, err
	})
	if err != nil {
		rep.Failure = FailureKind(err)
		c.say("\n⚠️  Smoke test incomplete: the write probe failed")
		return c.finish(rep)
	}
	rep.ProbeKey = rec.Key

	readErr := c.step(rep, domain.StepRead, func() (*postgrest.Response, error) {
		got, resp, err := c.read(ctx, rec.Key)
		if err == nil && got != rec.Value {
			c.say("❌ Read failed: retrieved value differs from the written value")
			return resp, &StepError{Step: domain.StepRead, Kind: ErrReadFailed, StatusCode: resp.StatusCode, Detail: "value mismatch"}
		}
		return resp, err
	})

	// The record exists now; delete it even if ctx was cancelled meanwhile.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	cleanupErr := c.step(rep, domain.StepCleanup, func() (*postgrest.Response, error) { return c.delete(cleanupCtx, rec.Key) })

	if readErr != nil {
		rep.Failure = FailureKind(readErr)
		c.say("\n⚠️  Smoke test incomplete: the read probe failed")
	} else {
		rep.Healthy = true
		c.say("\n🎉 All tests passed!")
	}
	if cleanupErr != nil {
		c.say("⚠️  Remove the leftover record with key %s manually", rec.Key)
	}
	return c.finish(rep)
}

// ProbeConnection issues a bounded read against the table.
func (c *StoreChecker) ProbeConnection(ctx context.Context) error {
	_, err := c.connection(ctx)
	return err
}

// ProbeWrite creates a fresh probe record and returns it.
func (c *StoreChecker) ProbeWrite(ctx context.Context) (domain.ProbeRecord, error) {
	rec, _, err := c.write(ctx)
	return rec, err
}

// ProbeRead fetches the payload stored under key.
func (c *StoreChecker) ProbeRead(ctx context.Context, key string) (domain.ProbePayload, error) {
	v, _, err := c.read(ctx, key)
	return v, err
}

// ProbeDelete removes the record stored under key. Failures are ErrCleanupFailed.
func (c *StoreChecker) ProbeDelete(ctx context.Context, key string) error {
	_, err := c.delete(ctx, key)
	return err
}

func (c *StoreChecker) connection(ctx context.Context) (*postgrest.Response, error) {
	c.say("🔍 Testing connection to %s ...", c.Client.Endpoint(c.Table))

	resp, err := c.Client.SelectCount(ctx, c.Table, postgrest.Limit(1))
	if err != nil {
		detail := err.Error()
		if c.DiagnoseDNS {
			dns := CheckDNS(ctx, hostOf(c.Client.BaseURL))
			detail += " (dns=" + dns.Class + ")"
			c.Logger.Info("probe_dns_check",
				zap.String("host", dns.Host),
				zap.String("class", dns.Class),
				zap.Strings("nameservers", dns.Nameservers),
				zap.String("cname", dns.CNAME),
				zap.String("resolver_error", dns.ResolverError),
			)
		}
		c.say("❌ Connection failed: %s", detail)
		return nil, &StepError{Step: domain.StepConnection, Kind: ErrConnectionFailed, Detail: detail, Err: err}
	}

	if resp.OK() {
		c.say("✅ Connection successful!")
		if n, ok := resp.Total(); ok {
			c.say("📊 Current record count: %d", n)
		}
		return resp, nil
	}

	if missingTable(resp) {
		c.say("⚠️  Table '%s' does not exist yet", c.Table)
		c.say("\n📋 You need to create the table in the SQL editor:")
		c.say("%s", schema.DDL(c.Table))
		c.inspect(ctx)
		return resp, &StepError{Step: domain.StepConnection, Kind: ErrSchemaMissing, StatusCode: resp.StatusCode, Detail: describe(resp)}
	}

	c.say("❌ Error: %d", resp.StatusCode)
	c.say("%s", string(resp.Body))
	return resp, &StepError{Step: domain.StepConnection, Kind: ErrConnectionFailed, StatusCode: resp.StatusCode, Detail: describe(resp)}
}

func (c *StoreChecker) write(ctx context.Context) (domain.ProbeRecord, *postgrest.Response, error) {
	c.say("\n🧪 Testing write operation...")

	now := c.Now()
	rec := domain.NewProbeRecord(c.Keys.Next(now), now)

	resp, err := c.Client.Insert(ctx, c.Table, rec)
	if err != nil {
		c.say("❌ Write test failed: %v", err)
		return rec, nil, &StepError{Step: domain.StepWrite, Kind: ErrWriteFailed, Detail: err.Error(), Err: err}
	}
	if !resp.OK() {
		c.say("❌ Write failed: %d", resp.StatusCode)
		c.say("%s", string(resp.Body))
		return rec, resp, &StepError{Step: domain.StepWrite, Kind: ErrWriteFailed, StatusCode: resp.StatusCode, Detail: describe(resp)}
	}

	c.say("✅ Write operation successful!")
	c.say("📝 Test key: %s", rec.Key)
	return rec, resp, nil
}

func (c *StoreChecker) read(ctx context.Context, key string) (domain.ProbePayload, *postgrest.Response, error) {
	c.say("\n🧪 Testing read operation...")

	var v domain.ProbePayload
	resp, err := c.Client.Select(ctx, c.Table, postgrest.Eq("key", key))
	if err != nil {
		c.say("❌ Read test failed: %v", err)
		return v, nil, &StepError{Step: domain.StepRead, Kind: ErrReadFailed, Detail: err.Error(), Err: err}
	}
	if !resp.OK() {
		c.say("❌ Read failed: %d", resp.StatusCode)
		return v, resp, &StepError{Step: domain.StepRead, Kind: ErrReadFailed, StatusCode: resp.StatusCode, Detail: describe(resp)}
	}
	if gjson.GetBytes(resp.Body, "#").Int() == 0 {
		c.say("❌ Read failed: no record with key %s", key)
		return v, resp, &StepError{Step: domain.StepRead, Kind: ErrReadFailed, StatusCode: resp.StatusCode, Detail: "no matching record"}
	}

	raw := gjson.GetBytes(resp.Body, "0.value").Raw
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		c.say("❌ Read failed: unexpected value %s", raw)
		return v, resp, &StepError{Step: domain.StepRead, Kind: ErrReadFailed, StatusCode: resp.StatusCode, Detail: "undecodable value", Err: err}
	}

	c.say("✅ Read operation successful!")
	c.say("📖 Retrieved: %s", compact(raw))
	return v, resp, nil
}

func (c *StoreChecker) delete(ctx context.Context, key string) (*postgrest.Response, error) {
	c.say("\n🧹 Cleaning up test record...")

	resp, err := c.Client.Delete(ctx, c.Table, postgrest.Eq("key", key))
	if err != nil {
		c.say("⚠️  Cleanup failed: %v", err)
		return nil, &StepError{Step: domain.StepCleanup, Kind: ErrCleanupFailed, Detail: err.Error(), Err: err}
	}
	if resp.StatusCode != http.StatusNoContent {
		c.say("⚠️  Cleanup warning: %d", resp.StatusCode)
		return resp, &StepError{Step: domain.StepCleanup, Kind: ErrCleanupFailed, StatusCode: resp.StatusCode, Detail: describe(resp)}
	}

	c.say("✅ Cleanup successful")
	return resp, nil
}

// inspect double-checks a missing table through the direct connection, which
// tells a stale REST schema cache apart from a table that was never created.
func (c *StoreChecker) inspect(ctx context.Context) {
	if c.Inspector == nil {
		return
	}
	exists, err := c.Inspector.TableExists(ctx, c.Table)
	switch {
	case err != nil:
		c.Logger.Warn("probe_inspect_error", zap.String("table", c.Table), zap.Error(err))
		c.say("ℹ️  Could not inspect the database directly: %v", err)
	case exists:
		c.say("ℹ️  Table %s exists in Postgres but the REST API cannot see it.", c.Table)
		c.say("   Reload the schema cache: NOTIFY pgrst, 'reload schema';")
	default:
		c.say("ℹ️  Confirmed via DATABASE_URL: table %s is absent.", c.Table)
	}
}

// step runs fn and records its result. StatusCode and LatencyMS come from the
// HTTP exchange; without a response (transport error) the step's wall time is used.
func (c *StoreChecker) step(rep *domain.Report, name string, fn func() (*postgrest.Response, error)) error {
	start := time.Now()
	resp, err := fn()
	d := time.Since(start)

	res := domain.StepResult{
		Step:      name,
		Success:   err == nil,
		LatencyMS: d.Seconds() * 1000,
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
		res.StatusCode = status
		res.LatencyMS = resp.LatencyMS()
		res.Message = resp.Status
	}
	outcome := "ok"
	if err != nil {
		res.Message = err.Error()
		res.Failure = FailureKind(err)
		outcome = res.Failure
		level := c.Logger.Warn
		if errors.Is(err, ErrCleanupFailed) {
			level = c.Logger.Info
		}
		level("probe_step_failed",
			zap.String("step", name),
			zap.String("table", c.Table),
			zap.Int("status", status),
			zap.String("failure", res.Failure),
			zap.Error(err),
		)
	} else {
		c.Logger.Debug("probe_step_ok",
			zap.String("step", name),
			zap.Int("status", status),
			zap.Float64("latency_ms", res.LatencyMS),
		)
	}
	metrics.ObserveStep(name, outcome, d)
	rep.Steps = append(rep.Steps, res)
	return err
}

func (c *StoreChecker) finish(rep *domain.Report) *domain.Report {
	rep.FinishedAt = c.Now().UTC()
	metrics.ObserveRun(rep.Healthy)
	c.Logger.Info("probe_run_finished",
		zap.String("id", rep.ID),
		zap.String("target", rep.Target),
		zap.String("table", rep.Table),
		zap.Bool("healthy", rep.Healthy),
		zap.String("failure", rep.Failure),
		zap.String("probe_key", rep.ProbeKey),
	)
	return rep
}

func (c *StoreChecker) say(format string, args ...any) {
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// missingTable reports whether resp means the table is not there: a plain
// 404, or the PostgREST/Postgres codes for an unknown relation.
func missingTable(resp *postgrest.Response) bool {
	if resp.StatusCode == http.StatusNotFound {
		return true
	}
	if e := resp.APIError(); e != nil {
		switch e.Code {
		case "PGRST205", "42P01":
			return true
		}
	}
	return false
}

func describe(resp *postgrest.Response) string {
	if e := resp.APIError(); e != nil {
		return e.Error()
	}
	return truncate(resp.Body, maxDetail)
}

const maxDetail = 200

// truncate cuts b to at most n bytes without splitting a UTF-8 sequence.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}

func compact(raw string) string {
	var b bytes.Buffer
	if err := json.Compact(&b, []byte(raw)); err != nil {
		return raw
	}
	return b.String()
}
