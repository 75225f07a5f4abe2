package schema

import "strings"

const DefaultTable = "data_store"

// ddlTemplate creates the key/value table the application stores its
// documents in. {{table}} is replaced by the configured table name.
const ddlTemplate = `
-- Create {{table}} table
CREATE TABLE {{table}} (
  id UUID DEFAULT gen_random_uuid() PRIMARY KEY,
  key VARCHAR(255) NOT NULL UNIQUE,
  value JSONB NOT NULL,
  created_at TIMESTAMP DEFAULT now(),
  updated_at TIMESTAMP DEFAULT now()
);

-- Create index on key
CREATE INDEX idx_{{table}}_key ON {{table}}(key);

-- Create updated_at trigger
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = now();
    RETURN NEW;
END;
$$ language 'plpgsql';

CREATE TRIGGER update_{{table}}_updated_at BEFORE UPDATE ON {{table}}
    FOR EACH ROW EXECUTE FUNCTION update_updated_at_column();

-- Enable Row Level Security
ALTER TABLE {{table}} ENABLE ROW LEVEL SECURITY;

-- Allow public access for development
CREATE POLICY "Enable all access for now" ON {{table}}
FOR ALL USING (true) WITH CHECK (true);
`

// DDL returns the SQL that creates table. An empty name means DefaultTable.
func DDL(table string) string {
	if table == "" {
		table = DefaultTable
	}
	return strings.ReplaceAll(ddlTemplate, "{{table}}", table)
}
