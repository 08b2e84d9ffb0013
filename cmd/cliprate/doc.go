// Command cliprate runs the clip rating survey bot and its reporting tools.
package main
