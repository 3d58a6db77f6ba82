// Package assembler turns a Brief into an Article: it asks a chat provider
// for an outline, writes every section concurrently through a request pool,
// attaches one image per section from a generator or a stock photo search,
// and optionally embeds a related video.
//
// The resulting Article renders to block-editor markup or Markdown. Describe
// turns any error returned here into a message fit for an end user.
package assembler
