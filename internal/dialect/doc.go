// Package dialect decides whether an input is analysed as C or as C++.
//
// The file extension settles most inputs. Headers and stdin are classified
// from lexical evidence (C++-only keywords, `::`, designated initializers);
// evidence collection never changes how tokens are produced.
package dialect
