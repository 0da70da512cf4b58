// Package repository provides PostgreSQL and MySQL persistence for users and audit log
// entries, plus a Redis read-through cache of user authorization records.
package repository
