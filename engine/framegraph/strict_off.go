//go:build !oxydebug

package framegraph

const strictBarriersDefault = false
