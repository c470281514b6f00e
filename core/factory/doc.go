// Package factory instantiates pluggable modules, such as metrics sinks, from
// the `type` and `conf` entries of the configuration file.
//
//	metrics:
//	  sinks:
//	    - type: journal
//	      conf:
//	        path: /var/lib/cpsim/journal.jsonl
//	        max_size_mb: "50"
//
// Each registered Factory decodes its conf map with Decode, which accepts
// string values for numeric, boolean and duration fields so that entries set
// through CPSIM_ environment variables decode like file values.
package factory
