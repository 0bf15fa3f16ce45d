// Package mailrelay sends contact inquiries to the external mail relay over HTTP.
package mailrelay
