package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE generated_files (
				workflow_id VARCHAR(255) NOT NULL,
				path TEXT NOT NULL,
				content TEXT NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_id, path)
			);

			CREATE INDEX idx_generated_files_updated_at ON generated_files(updated_at);
		`,
	}
}
