// Package repo хранит историю run'ов.
//
// Драйверы:
//   - jsonl — файл metrics.jsonl, одна запись на строку (по умолчанию)
//   - sqlite — локальная база через mattn/go-sqlite3
//   - mysql — go-sql-driver/mysql
//   - postgres — pgxpool
//   - none — история не сохраняется
//
// Все драйверы реализуют Store.
package repo
