//go:build oxydebug

package framegraph

const strictBarriersDefault = true
