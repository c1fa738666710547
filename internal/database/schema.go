package database

const schema = `
CREATE TABLE IF NOT EXISTS kv_blobs (
    blob_key VARCHAR(191) NOT NULL PRIMARY KEY,
    blob_value LONGTEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);
`
