package method

type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
	// Extension is any syntactically valid method token not listed above. The original
	// token is kept in the request.
	Extension

	// Count is the last one enum, so contains the greatest integer value of all the
	// methods. So real number of methods is lower by 1
	Count = iota - 1
)

// List contains all the standard HTTP methods. They are sorted by their integer value, however
// Unknown and Extension are not included. So in order to index the List, you must subtract 1 first.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

var names = [...]string{
	Unknown:   "UNKNOWN",
	GET:       "GET",
	HEAD:      "HEAD",
	POST:      "POST",
	PUT:       "PUT",
	DELETE:    "DELETE",
	CONNECT:   "CONNECT",
	OPTIONS:   "OPTIONS",
	TRACE:     "TRACE",
	PATCH:     "PATCH",
	Extension: "EXTENSION",
}

func (m Method) String() string {
	if int(m) >= len(names) {
		return names[Unknown]
	}

	return names[m]
}

// Parse recognizes the standard methods. Other valid tokens result in Extension, and
// everything else in Unknown. Methods are case-sensitive.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		if str == "GET" {
			return GET
		} else if str == "PUT" {
			return PUT
		}
	case 4:
		if str == "POST" {
			return POST
		} else if str == "HEAD" {
			return HEAD
		}
	case 5:
		if str == "PATCH" {
			return PATCH
		} else if str == "TRACE" {
			return TRACE
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		if str == "CONNECT" {
			return CONNECT
		} else if str == "OPTIONS" {
			return OPTIONS
		}
	}

	if IsToken(str) {
		return Extension
	}

	return Unknown
}

// IsToken tells whether the string is a non-empty RFC 9110 token.
func IsToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if !tchar[str[i]] {
			return false
		}
	}

	return true
}

var tchar = func() (table [256]bool) {
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		table[c] = true
	}
	for _, c := range "!#$%&'*+-.^_`|~" {
		table[c] = true
	}

	return table
}()
